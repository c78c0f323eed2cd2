package emailutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValid(t *testing.T) {
	report := Validate([]string{"test@gmail.com", "user@yahoo.com"})
	assert.Equal(t, []string{"test@gmail.com", "user@yahoo.com"}, report.Valid)
	assert.Empty(t, report.Invalid)
	assert.Empty(t, report.TypoSuggestions)
	assert.True(t, report.Clean())
}

func TestValidateTypo(t *testing.T) {
	report := Validate([]string{"test@gmai.com"})
	assert.Empty(t, report.Valid)
	require.Len(t, report.TypoSuggestions, 1)
	assert.Equal(t, "test@gmai.com", report.TypoSuggestions[0].Original)
	assert.Equal(t, "test@gmail.com", report.TypoSuggestions[0].Suggestion)
	assert.False(t, report.Clean())
}

func TestValidateDisposable(t *testing.T) {
	report := Validate([]string{"test@mailinator.com"})
	assert.Empty(t, report.Valid)
	require.Len(t, report.Invalid, 1)
	assert.Equal(t, "test@mailinator.com", report.Invalid[0].Email)
	assert.Contains(t, report.Invalid[0].Reason, "Disposable")
}

func TestValidateSyntax(t *testing.T) {
	report := Validate([]string{"not-an-email", "missing@", "@domain.com"})
	assert.Empty(t, report.Valid)
	assert.Len(t, report.Invalid, 3)
}

func TestValidateMixed(t *testing.T) {
	report := Validate([]string{"valid@gmail.com", "typo@yaho.com", "junk@mailinator.com", "  ", ""})

	assert.Equal(t, []string{"valid@gmail.com"}, report.Valid)

	require.Len(t, report.TypoSuggestions, 1)
	assert.Equal(t, "typo@yaho.com", report.TypoSuggestions[0].Original)
	assert.Equal(t, "typo@yahoo.com", report.TypoSuggestions[0].Suggestion)

	require.Len(t, report.Invalid, 1)
	assert.Equal(t, "junk@mailinator.com", report.Invalid[0].Email)
}

func TestValidateCorporateDomainNotFlagged(t *testing.T) {
	// Unrelated domains must not be "corrected" toward a common provider.
	report := Validate([]string{"dev@example.com", "ops@giantswarm.io"})
	assert.Len(t, report.Valid, 2)
	assert.Empty(t, report.TypoSuggestions)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("gmail.com", "gmail.com"))
	assert.Greater(t, similarity("gmai.com", "gmail.com"), typoCutoff)
	assert.Less(t, similarity("example.com", "gmail.com"), typoCutoff)
}
