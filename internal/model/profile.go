package model

import (
	"maps"
	"slices"
	"time"
)

// ProfileSource records where a DemographicProfile's numbers came from.
type ProfileSource string

// Profile sources.
const (
	SourceCensus           ProfileSource = "census"
	SourceCensusAggregate  ProfileSource = "census_zip_aggregate"
	SourceFallbackZIP      ProfileSource = "fallback_zip"
	SourceFallbackDistrict ProfileSource = "fallback_district"
)

// Age bracket labels, in canonical order.
const (
	Age18to24 = "18-24"
	Age25to34 = "25-34"
	Age35to44 = "35-44"
	Age45to54 = "45-54"
	Age55to64 = "55-64"
	Age65to74 = "65-74"
	Age75Plus = "75+"
)

// AgeBrackets lists the age bracket labels in canonical order.
var AgeBrackets = []string{Age18to24, Age25to34, Age35to44, Age45to54, Age55to64, Age65to74, Age75Plus}

// Race/ethnicity category keys.
const (
	RaceWhite    = "white"
	RaceBlack    = "black"
	RaceHispanic = "hispanic"
	RaceAsian    = "asian"
	RaceOther    = "other"
)

// RaceCategories lists the race/ethnicity keys in canonical order.
var RaceCategories = []string{RaceWhite, RaceBlack, RaceHispanic, RaceAsian, RaceOther}

// Education level keys.
const (
	EduLessThanHighSchool = "lessThanHighSchool"
	EduHighSchool         = "highSchool"
	EduSomeCollege        = "someCollege"
	EduBachelors          = "bachelors"
	EduGraduate           = "graduate"
)

// EducationLevels lists the education keys from lowest to highest attainment.
var EducationLevels = []string{EduLessThanHighSchool, EduHighSchool, EduSomeCollege, EduBachelors, EduGraduate}

// Occupation category keys.
const (
	OccManagement   = "management"
	OccService      = "service"
	OccSalesOffice  = "salesOffice"
	OccConstruction = "construction"
	OccProduction   = "production"
)

// OccupationCategories lists the occupation category keys in canonical order.
var OccupationCategories = []string{OccManagement, OccService, OccSalesOffice, OccConstruction, OccProduction}

// DemographicProfile is one region's aggregate Census statistics. Percentage
// maps hold whole-number percentages and are relative weights, not exact
// probabilities.
type DemographicProfile struct {
	RegionID             string         `json:"regionId"`
	Population           int            `json:"population"`
	MedianIncome         int            `json:"medianIncome"`
	MedianAge            float64        `json:"medianAge"`
	AgeGroups            map[string]int `json:"ageGroups,omitempty"`
	RaceEthnicity        map[string]int `json:"raceEthnicity"`
	EducationLevels      map[string]int `json:"educationLevels"`
	OccupationCategories map[string]int `json:"occupationCategories"`
	HomeownershipRate    *float64       `json:"homeownershipRate,omitempty"`
	PovertyRate          *float64       `json:"povertyRate,omitempty"`
	CollegeRate          *float64       `json:"collegeRate,omitempty"`
	IncomeDistribution   map[string]int `json:"incomeDistribution,omitempty"`

	Source         ProfileSource `json:"source"`
	FallbackReason string        `json:"fallbackReason,omitempty"`
	ZIPCodes       []string      `json:"zipCodes,omitempty"`
	FetchedAt      time.Time     `json:"fetchedAt"`
}

// IsFallback reports whether the profile was synthesized rather than built
// from Census responses.
func (p *DemographicProfile) IsFallback() bool {
	return p.Source == SourceFallbackZIP || p.Source == SourceFallbackDistrict
}

// Clone returns a deep copy so cached profiles are never shared mutably.
func (p *DemographicProfile) Clone() *DemographicProfile {
	if p == nil {
		return nil
	}
	c := *p
	c.AgeGroups = maps.Clone(p.AgeGroups)
	c.RaceEthnicity = maps.Clone(p.RaceEthnicity)
	c.EducationLevels = maps.Clone(p.EducationLevels)
	c.OccupationCategories = maps.Clone(p.OccupationCategories)
	c.IncomeDistribution = maps.Clone(p.IncomeDistribution)
	c.ZIPCodes = slices.Clone(p.ZIPCodes)
	c.HomeownershipRate = clonePtr(p.HomeownershipRate)
	c.PovertyRate = clonePtr(p.PovertyRate)
	c.CollegeRate = clonePtr(p.CollegeRate)
	return &c
}

// Valid reports whether every percentage map is non-negative and the
// required maps have a positive total. A profile that fails this check must
// be replaced by a fallback profile.
func (p *DemographicProfile) Valid() bool {
	if p == nil || p.Population < 0 {
		return false
	}
	for _, m := range []map[string]int{p.RaceEthnicity, p.EducationLevels, p.OccupationCategories} {
		if Total(m) <= 0 {
			return false
		}
	}
	for _, m := range []map[string]int{p.RaceEthnicity, p.EducationLevels, p.OccupationCategories, p.AgeGroups, p.IncomeDistribution} {
		for _, v := range m {
			if v < 0 {
				return false
			}
		}
	}
	return true
}

// Total sums the values of a weight map.
func Total(m map[string]int) int {
	t := 0
	for _, v := range m {
		t += v
	}
	return t
}

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }

func clonePtr(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
