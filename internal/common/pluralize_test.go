package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPluralizePoints(t *testing.T) {
	cases := map[int]string{
		0:   "баллов",
		1:   "балл",
		2:   "балла",
		4:   "балла",
		5:   "баллов",
		11:  "баллов",
		12:  "баллов",
		21:  "балл",
		22:  "балла",
		100: "баллов",
		101: "балл",
	}
	for n, want := range cases {
		assert.Equal(t, want, PluralizePoints(n), "n=%d", n)
	}
}

func TestFormatPoints(t *testing.T) {
	assert.Equal(t, "3 балла", FormatPoints(3, "балл"))
	assert.Equal(t, "3 балла", FormatPoints(3, ""))
	assert.Equal(t, "3 тако", FormatPoints(3, "тако"))
}
