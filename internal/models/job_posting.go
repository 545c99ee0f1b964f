package models

import (
	"fmt"
	"strings"
)

// JobPosting is the data a job-creation scenario expects to enter and see
type JobPosting struct {
	JobTitle      string `toml:"job_title" validate:"required"`
	CompanyName   string `toml:"company_name" validate:"required"`
	Location      string `toml:"location" validate:"required"`
	Position      string `toml:"position"`
	InternalTitle string `toml:"internal_title"`
	Headcount     int    `toml:"headcount" validate:"gte=0"`
	JobType       string `toml:"job_type"`
	Department    string `toml:"department"`
	WorkLocation  string `toml:"work_location"`
	Currency      string `toml:"currency"`
	SalaryMin     int    `toml:"salary_min" validate:"gte=0"`
	SalaryMax     int    `toml:"salary_max" validate:"gtefield=SalaryMin"`
	Duration      string `toml:"duration"`
	SalaryNote    string `toml:"salary_note"`
	Description   string `toml:"description"`
}

// SalaryRange renders the salary band as shown in the job preview
func (j JobPosting) SalaryRange() string {
	if j.SalaryMin == 0 && j.SalaryMax == 0 {
		return ""
	}
	parts := []string{fmt.Sprintf("%s%d - %s%d", j.Currency, j.SalaryMin, j.Currency, j.SalaryMax)}
	if j.Duration != "" {
		parts = append(parts, j.Duration)
	}
	return strings.Join(parts, " ")
}
