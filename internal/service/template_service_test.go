package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unclebandit/muxo-dispatch/internal/model"
	"github.com/unclebandit/muxo-dispatch/internal/service"
)

func TestRenderTemplate(t *testing.T) {
	ann := model.NewContact("15551", "Ann", "Lee", []string{"vip"})

	cases := []struct {
		template string
		want     string
	}{
		{"Hi {{ first_name }}", "Hi Ann"},
		{"Hi {{ nickname }}", "Hi "},
		{"{{first_name}} {{last_name}} ({{ msisdn }})", "Ann Lee (15551)"},
		{"{{ tags }}{{ opted_out }}", ""},
		{"no placeholders", "no placeholders"},
		{"{{ first_name }", "{{ first_name }"},
		{"{{}}", ""},
		{"{{ first_name }}{{ first_name }}", "AnnAnn"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, service.RenderTemplate(tc.template, ann), tc.template)
	}
}

func TestRenderTemplateDeterministic(t *testing.T) {
	c := model.NewContact("15551", "Ann", "{{ last_name }}", nil)

	first := service.RenderTemplate("{{ first_name }} {{ last_name }}", c)
	assert.Equal(t, "Ann {{ last_name }}", first)
	assert.Equal(t, first, service.RenderTemplate("{{ first_name }} {{ last_name }}", c))
}
