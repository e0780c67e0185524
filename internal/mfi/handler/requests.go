package handler

import "grameengo/pkg/platform/httputil"

var createSchema = httputil.MustCompileSchema(`{
	"type": "object",
	"properties": {
		"name":                 {"type": "string"},
		"description":          {"type": "string"},
		"min_loan_amount":      {"type": "number"},
		"max_loan_amount":      {"type": "number"},
		"interest_rate":        {"type": "number"},
		"processing_time_days": {"type": "integer"},
		"collateral_required":  {"type": "boolean"},
		"tenure_options":       {"type": "array", "items": {"type": "integer"}},
		"requirements":         {"type": "array", "items": {"type": "string"}},
		"website":              {"type": "string"},
		"contact_email":        {"type": "string"},
		"contact_phone":        {"type": "string"},
		"logo_url":             {"type": "string"}
	}
}`)
