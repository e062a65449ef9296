package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseRiskLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    RiskLevel
		wantErr bool
	}{
		{"safe", RiskSafe, false},
		{"MODERATE", RiskModerate, false},
		{" caution ", RiskCaution, false},
		{"", 0, false},
		{"dangerous", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRiskLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRiskLevel_AtMost(t *testing.T) {
	assert.True(t, RiskSafe.AtMost(RiskSafe))
	assert.False(t, RiskModerate.AtMost(RiskSafe))
	assert.True(t, RiskModerate.AtMost(RiskCaution))
	assert.True(t, RiskCaution.AtMost(0))
	assert.True(t, RiskLevel(0).AtMost(RiskSafe))
}

func TestRiskLevel_YAML(t *testing.T) {
	var loc Location
	err := yaml.Unmarshal([]byte("path: /tmp/x\nname: x\ncategory: logs\nrisk_level: moderate\n"), &loc)
	require.NoError(t, err)
	assert.Equal(t, RiskModerate, loc.RiskLevel)
	assert.Equal(t, CategoryLogs, loc.Category)

	out, err := yaml.Marshal(loc)
	require.NoError(t, err)
	assert.Contains(t, string(out), "risk_level: moderate")
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input string
		want  Category
	}{
		{"browser", CategoryBrowser},
		{"user-cache", CategoryUserCache},
		{"SYSTEM", CategorySystemCache},
		{"system_cache", CategorySystemCache},
		{"container", CategoryContainer},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCategory(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}

	_, err := ParseCategory("photos")
	assert.Error(t, err)
	assert.False(t, Category("photos").Valid())
}
