package extract

import (
	"regexp"

	"github.com/bkoehler/brokerdocs/constants"
)

// categoryRule binds a contract category to the patterns that identify
// it. Rules are evaluated top to bottom, first match wins, so more
// specific products must come before the broader ones they contain
// (Tierhalterhaftpflicht before Haftpflicht).
type categoryRule struct {
	category constants.Category
	patterns []*regexp.Regexp
}

var categoryRules = []categoryRule{
	{
		constants.Vehicle,
		[]*regexp.Regexp{
			regexp.MustCompile(`(?i)\bkfz\b`),
			regexp.MustCompile(`(?i)kfz[-\s]?versicherung`),
			regexp.MustCompile(`(?i)\bkennzeichen\b`),
			regexp.MustCompile(`(?i)\bteilkasko\b`),
			regexp.MustCompile(`(?i)\bvollkasko\b`),
		},
	},
	{
		constants.HouseholdContents,
		[]*regexp.Regexp{
			regexp.MustCompile(`(?i)\bhausrat\b`),
			regexp.MustCompile(`(?i)hausratversicherung`),
		},
	},
	{
		constants.Building,
		[]*regexp.Regexp{
			regexp.MustCompile(`(?i)wohngebäude|wohngebaeude`),
		},
	},
	{
		constants.Pet,
		[]*regexp.Regexp{
			regexp.MustCompile(`(?i)tierhalterhaftpflicht|tierkranken|hundehaftpflicht`),
		},
	},
	{
		constants.PersonalLiability,
		[]*regexp.Regexp{
			regexp.MustCompile(`(?i)privathaftpflicht`),
			regexp.MustCompile(`(?i)\bhaftpflicht\b`),
		},
	},
	{
		constants.LegalProtection,
		[]*regexp.Regexp{
			regexp.MustCompile(`(?i)rechtsschutz|rechtschutz`),
		},
	},
	{
		constants.Disability,
		[]*regexp.Regexp{
			regexp.MustCompile(`(?i)berufsunfähigkeit|berufsunfaehigkeit|bu-rente`),
		},
	},
	{
		constants.Accident,
		[]*regexp.Regexp{
			regexp.MustCompile(`(?i)unfallversicherung|gliedertaxe`),
		},
	},
	{
		constants.Travel,
		[]*regexp.Regexp{
			regexp.MustCompile(`(?i)reiseversicherung|reiserücktritt|auslandsreisekranken`),
		},
	},
	{
		constants.Health,
		[]*regexp.Regexp{
			regexp.MustCompile(`(?i)private krankenversicherung|krankenvollversicherung|\bpkv\b`),
		},
	},
	{
		constants.Life,
		[]*regexp.Regexp{
			regexp.MustCompile(`(?i)risikolebensversicherung|lebensversicherung`),
		},
	},
}

// DetectCategory returns the first category whose any rule matches the
// normalized text, or Unknown.
func DetectCategory(text string) constants.Category {
	for _, rule := range categoryRules {
		for _, p := range rule.patterns {
			if p.MatchString(text) {
				return rule.category
			}
		}
	}
	return constants.Unknown
}
