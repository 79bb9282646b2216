package http

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type closingModule struct {
	name   string
	closed *[]string
}

func (m closingModule) Name() string                  { return m.name }
func (m closingModule) RegisterRoutes(*RouterContext) {}
func (m closingModule) Close(context.Context)         { *m.closed = append(*m.closed, m.name) }

type plainModule struct{}

func (plainModule) Name() string                  { return "plain" }
func (plainModule) RegisterRoutes(*RouterContext) {}

func TestAppClose_ReverseOrderSkipsNonClosers(t *testing.T) {
	var closed []string
	app := &App{Modules: []Module{
		closingModule{name: "leads", closed: &closed},
		plainModule{},
		closingModule{name: "reports", closed: &closed},
	}}

	app.Close(context.Background())

	require.Equal(t, []string{"reports", "leads"}, closed)
}
