package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWords(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"punctuation dropped", "Hello, world!", []string{"Hello", "world"}},
		{"dedupe keeps first", "go Go go stop", []string{"go", "Go", "stop"}},
		{"digits kept", "route 66 now", []string{"route", "66", "now"}},
		{"hashtag marker dropped", "#golang rocks", []string{"golang", "rocks"}},
		{"contractions stay whole", "don't panic", []string{"don't", "panic"}},
		{"only symbols", "... !!! ???", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Words(tc.in))
		})
	}
}
