package app

import (
	"context"
	"time"

	"github.com/w-h-a/helpdesk/generator"
	"github.com/w-h-a/helpdesk/history"
)

// Timeouts for collaborator calls live here, at the wiring boundary, so
// the pipeline itself stays free of them.

type timeoutGenerator struct {
	generator generator.Generator
	timeout   time.Duration
}

func (g *timeoutGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.generator.Generate(ctx, prompt)
}

type timeoutHistory struct {
	history history.History
	timeout time.Duration
}

func (h *timeoutHistory) List(ctx context.Context, userId string) ([]history.Turn, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.history.List(ctx, userId)
}

func (h *timeoutHistory) Append(ctx context.Context, turn history.Turn) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.history.Append(ctx, turn)
}

func withGeneratorTimeout(g generator.Generator, d time.Duration) generator.Generator {
	if d <= 0 {
		return g
	}
	return &timeoutGenerator{generator: g, timeout: d}
}

func withHistoryTimeout(h history.History, d time.Duration) history.History {
	if d <= 0 {
		return h
	}
	return &timeoutHistory{history: h, timeout: d}
}
