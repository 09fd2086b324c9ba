// Package app wires the document model together: it resolves configuration,
// builds the type registry on top of the selected geometry kernel, loads or
// creates a document, applies edits, recomputes, and reports the outcomes.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/paramdoc/internal/ctxlog"
	"github.com/vk/paramdoc/internal/document"
	"github.com/vk/paramdoc/internal/feature"
	"github.com/vk/paramdoc/internal/kernel"
	"github.com/vk/paramdoc/internal/kernel/sdfx"
	"github.com/vk/paramdoc/internal/kernel/stub"
	"github.com/vk/paramdoc/internal/property"
	"github.com/vk/paramdoc/internal/snapshot"
)

// App encapsulates one configured run over a document.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	types  *document.Registry
}

// New builds an App from resolved configuration. The type registry is
// populated with the built-in feature types bound to the configured kernel.
func New(outW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	var k kernel.Kernel
	switch cfg.Kernel {
	case "stub":
		k = stub.New()
	default:
		k = sdfx.New()
	}

	reg := document.NewRegistry()
	if err := feature.Register(reg, k); err != nil {
		return nil, fmt.Errorf("registering built-in types: %w", err)
	}
	logger.Debug("type registry populated", "kernel", cfg.Kernel)

	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		types:  reg,
	}, nil
}

// Run executes the pipeline: load or create the document, apply edits and
// formula bindings inside a single transaction, recompute, report, and
// optionally save.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	doc, err := a.loadDocument()
	if err != nil {
		return err
	}
	a.logger.Info("document ready", "uid", doc.UID(), "objects", len(doc.Objects()))

	if len(a.config.Edits) > 0 || len(a.config.Formulas) > 0 {
		err := doc.Transaction("edit", func() error {
			for _, spec := range a.config.Edits {
				if err := applyEdit(doc, spec); err != nil {
					return err
				}
			}
			for _, spec := range a.config.Formulas {
				if err := applyFormula(doc, spec); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("applying edits: %w", err)
		}
		a.logger.Debug("edits committed",
			"sets", len(a.config.Edits), "exprs", len(a.config.Formulas))
	}

	outcomes, err := doc.Recompute(ctx)
	if err != nil {
		return err
	}

	failed := 0
	for _, oc := range outcomes {
		switch oc.Kind {
		case document.OutcomeOK:
			fmt.Fprintf(a.outW, "ok      %s\n", oc.ObjectID)
		case document.OutcomeFailed:
			failed++
			fmt.Fprintf(a.outW, "failed  %s: %v\n", oc.ObjectID, oc.Err)
		case document.OutcomeBlocked:
			failed++
			fmt.Fprintf(a.outW, "blocked %s: %v\n", oc.ObjectID, oc.Err)
		}
	}
	if len(outcomes) == 0 {
		fmt.Fprintln(a.outW, "nothing to recompute")
	}

	if a.config.OutPath != "" {
		data, err := snapshot.Save(doc)
		if err != nil {
			return err
		}
		if err := os.WriteFile(a.config.OutPath, data, 0o644); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		a.logger.Info("snapshot written", "path", a.config.OutPath)
	}

	if failed > 0 {
		return fmt.Errorf("%d object(s) did not recompute cleanly", failed)
	}
	return nil
}

func (a *App) loadDocument() (*document.Document, error) {
	if a.config.DocPath == "" {
		label := a.config.Label
		if label == "" {
			label = "Unnamed"
		}
		return document.New(label, a.types), nil
	}
	data, err := os.ReadFile(a.config.DocPath)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	return snapshot.Load(data, a.types)
}

// applyEdit parses one "Object.Property=value" assignment and applies it.
// The value text is interpreted according to the property's declared kind.
func applyEdit(d *document.Document, spec string) error {
	id, name, raw, err := splitSpec(spec)
	if err != nil {
		return err
	}
	o, ok := d.Object(id)
	if !ok {
		return fmt.Errorf("edit %q: unknown object %q", spec, id)
	}
	p, ok := o.Properties().Get(name)
	if !ok {
		return fmt.Errorf("edit %q: object %q has no property %q", spec, id, name)
	}

	var value any
	switch p.Kind() {
	case property.Float:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("edit %q: %w", spec, err)
		}
		value = cty.NumberFloatVal(f)
	case property.Integer:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("edit %q: %w", spec, err)
		}
		value = cty.NumberIntVal(n)
	case property.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("edit %q: %w", spec, err)
		}
		value = cty.BoolVal(b)
	case property.String:
		value = cty.StringVal(raw)
	case property.Link:
		value = parseLinkRef(raw)
	case property.LinkList:
		var refs []property.LinkRef
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			refs = append(refs, parseLinkRef(part))
		}
		value = refs
	default:
		return fmt.Errorf("edit %q: property kind %s cannot be set from the command line", spec, p.Kind())
	}

	return d.SetProperty(id, name, value)
}

// applyFormula parses one "Object.Property=formula" binding.
func applyFormula(d *document.Document, spec string) error {
	id, name, formula, err := splitSpec(spec)
	if err != nil {
		return err
	}
	return d.BindExpression(id, name, formula)
}

// splitSpec decomposes "Object.Property=text" into its three parts.
func splitSpec(spec string) (id, name, text string, err error) {
	lhs, rhs, ok := strings.Cut(spec, "=")
	if !ok {
		return "", "", "", fmt.Errorf("malformed spec %q: want Object.Property=value", spec)
	}
	id, name, ok = strings.Cut(strings.TrimSpace(lhs), ".")
	if !ok || id == "" || name == "" {
		return "", "", "", fmt.Errorf("malformed spec %q: want Object.Property=value", spec)
	}
	return id, name, rhs, nil
}

// parseLinkRef reads "Target" or "Target#SubElement" link syntax.
func parseLinkRef(raw string) property.LinkRef {
	target, sub, _ := strings.Cut(raw, "#")
	return property.LinkRef{Target: target, SubElement: sub}
}
