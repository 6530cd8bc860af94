package config_test

import (
	"testing"

	"github.com/paveg/textrules/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRuleType(t *testing.T) {
	tests := []struct {
		input    string
		expected config.RuleType
	}{
		{"simple", config.RuleSimple},
		{" Multiline ", config.RuleMultiline},
		{"SimpleRegexMatchCheck", config.RuleSimple},
		{"MultilineTextMatchCheck", config.RuleMultiline},
		{"RequiredStringNotPresentRegexMatchCheck", config.RuleRequiredStringNotPresent},
		{"StringDisallowedIfMatchInAnotherFileCheck", config.RuleDisallowedIfMatchInOtherFile},
		{"MultiFileIfOneStringExistsThenBothMustExistCheck", config.RuleBothMustExist},
		{"multi_file_if_one_exists_then_both_must_exist", config.RuleBothMustExist},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := config.ParseRuleType(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := config.ParseRuleType("fuzzy")
	assert.Error(t, err)
}

func TestRuleConfig_Validate(t *testing.T) {
	tests := []struct {
		name          string
		rule          config.RuleConfig
		expectedError string
	}{
		{
			name: "complete cross-file rule",
			rule: config.RuleConfig{
				Key:                      "both",
				Type:                     config.RuleBothMustExist,
				TriggerExpression:        "a",
				MustAlsoExistExpression:  "b",
				MustAlsoExistFilePattern: "**/*.txt",
			},
		},
		{
			name:          "missing key",
			rule:          config.RuleConfig{Type: config.RuleSimple, Expression: "x"},
			expectedError: "key is required",
		},
		{
			name:          "unknown type",
			rule:          config.RuleConfig{Key: "r", Type: "fuzzy"},
			expectedError: `type must be one of`,
		},
		{
			name: "missing disallow expression",
			rule: config.RuleConfig{
				Key:               "r",
				Type:              config.RuleDisallowedIfMatchInOtherFile,
				TriggerExpression: "x",
			},
			expectedError: "disallow_expression is required",
		},
		{
			name: "bad project key filter",
			rule: config.RuleConfig{
				Key:                     "r",
				Type:                    config.RuleSimple,
				Expression:              "x",
				DoNotFireForProjectKeys: "[",
			},
			expectedError: "invalid do_not_fire_for_project_keys",
		},
		{
			name: "bad file pattern",
			rule: config.RuleConfig{
				Key:         "r",
				Type:        config.RuleSimple,
				Expression:  "x",
				FilePattern: "a/[",
			},
			expectedError: "file_pattern",
		},
		{
			name: "unknown severity",
			rule: config.RuleConfig{
				Key:        "r",
				Type:       config.RuleSimple,
				Expression: "x",
				Severity:   "urgent",
			},
			expectedError: `got "URGENT"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.expectedError == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			}
		})
	}
}

func TestRuleType_RequiredFields(t *testing.T) {
	for _, rt := range config.RuleTypes {
		assert.NotEmpty(t, rt.RequiredFields(), rt)
	}
	assert.Nil(t, config.RuleType("other").RequiredFields())
}
