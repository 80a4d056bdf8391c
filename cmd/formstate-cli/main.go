// Command formstate-cli resolves form submissions into normalized state and
// optionally renders them. Inputs come from local files or the form API.
//
// Examples:
//
//	formstate-cli -schema form.json -submission payload.json
//	formstate-cli -base-url https://api.example.com -form f-1 -submission-id sub-9
//	formstate-cli -openapi api.json -operation createContact -renderer html
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	formstate "github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/pkg/client"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/openapi"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/renderers/html"
	"github.com/goliatone/go-formstate/pkg/renderers/tui"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/store/sqlite"
	"github.com/goliatone/go-formstate/pkg/submission"
	"github.com/goliatone/go-formstate/pkg/validation"
)

func main() {
	schemaPath := flag.String("schema", "", "form definition file (JSON or YAML)")
	submissionPath := flag.String("submission", "", "submission payload file (JSON)")
	openapiPath := flag.String("openapi", "", "OpenAPI document to derive the schema from")
	operation := flag.String("operation", "", "operationId to import when using -openapi")
	baseURL := flag.String("base-url", "", "form API base URL for remote fetching")
	formID := flag.String("form", "", "form id to fetch from the API")
	submissionID := flag.String("submission-id", "", "submission id to fetch from the API")
	token := flag.String("token", "", "bearer token for the form API")
	rendererName := flag.String("renderer", "state", "output: state, html, or tui")
	output := flag.String("output", "", "output file (stdout if empty)")
	cachePath := flag.String("cache", "", "sqlite database for caching resolved state")
	validate := flag.Bool("validate", false, "validate state against the derived schema")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		dev, err := zap.NewDevelopment()
		if err != nil {
			log.Fatalf("logger: %v", err)
		}
		logger = dev
	}
	defer logger.Sync()

	ctx := context.Background()

	parsed, state, err := loadInputs(ctx, logger, inputs{
		schemaPath:     *schemaPath,
		submissionPath: *submissionPath,
		openapiPath:    *openapiPath,
		operation:      *operation,
		baseURL:        *baseURL,
		formID:         *formID,
		submissionID:   *submissionID,
		token:          *token,
	})
	if err != nil {
		log.Fatalf("load inputs: %v", err)
	}

	if *cachePath != "" && *formID != "" && *submissionID != "" {
		store, err := sqlite.Open(*cachePath, sqlite.WithLogger(logger))
		if err != nil {
			log.Fatalf("open cache: %v", err)
		}
		defer store.Close()
		if err := store.SaveState(ctx, *formID, *submissionID, state); err != nil {
			log.Fatalf("cache state: %v", err)
		}
	}

	form := model.NewBuilder().Build(parsed)

	if *validate {
		issues, err := validation.New().Validate(form, state)
		if err != nil {
			log.Fatalf("validate: %v", err)
		}
		for _, issue := range issues {
			if issue.Field == "" {
				fmt.Fprintf(os.Stderr, "invalid: %s\n", issue.Message)
				continue
			}
			fmt.Fprintf(os.Stderr, "invalid %s: %s\n", issue.Field, issue.Message)
		}
		if len(issues) > 0 {
			os.Exit(2)
		}
	}

	out, err := renderOutput(ctx, *rendererName, form, state)
	if err != nil {
		log.Fatalf("render: %v", err)
	}

	if *output != "" {
		if err := os.WriteFile(*output, out, 0o644); err != nil {
			log.Fatalf("write output: %v", err)
		}
		fmt.Printf("written to %s\n", *output)
		return
	}
	fmt.Println(string(out))
}

type inputs struct {
	schemaPath     string
	submissionPath string
	openapiPath    string
	operation      string
	baseURL        string
	formID         string
	submissionID   string
	token          string
}

func loadInputs(ctx context.Context, logger *zap.Logger, in inputs) (schema.FormSchema, submission.State, error) {
	switch {
	case in.baseURL != "" && in.formID != "":
		return loadRemote(ctx, logger, in)
	case in.openapiPath != "":
		return loadFromOpenAPI(ctx, logger, in)
	case in.schemaPath != "":
		return loadLocal(logger, in)
	default:
		return schema.FormSchema{}, nil, fmt.Errorf("one of -schema, -openapi, or -base-url with -form is required")
	}
}

func loadRemote(ctx context.Context, logger *zap.Logger, in inputs) (schema.FormSchema, submission.State, error) {
	var options []client.Option
	if in.token != "" {
		options = append(options, client.WithToken(in.token))
	}
	options = append(options, client.WithLogger(logger))

	api, err := client.New(in.baseURL, options...)
	if err != nil {
		return schema.FormSchema{}, nil, err
	}
	session, err := client.NewSession(api, in.formID, in.submissionID,
		client.WithSessionLogger(logger))
	if err != nil {
		return schema.FormSchema{}, nil, err
	}

	snapshot, err := session.Load(ctx)
	if err != nil {
		return schema.FormSchema{}, nil, err
	}
	return snapshot.Schema, snapshot.State, nil
}

func loadFromOpenAPI(ctx context.Context, logger *zap.Logger, in inputs) (schema.FormSchema, submission.State, error) {
	if in.operation == "" {
		return schema.FormSchema{}, nil, fmt.Errorf("-operation is required with -openapi")
	}
	raw, err := os.ReadFile(in.openapiPath)
	if err != nil {
		return schema.FormSchema{}, nil, err
	}

	parsed, err := openapi.NewImporter().Import(ctx, raw, in.operation)
	if err != nil {
		return schema.FormSchema{}, nil, err
	}

	state, err := loadSubmissionFile(logger, parsed, in.submissionPath)
	if err != nil {
		return schema.FormSchema{}, nil, err
	}
	return parsed, state, nil
}

func loadLocal(logger *zap.Logger, in inputs) (schema.FormSchema, submission.State, error) {
	raw, err := os.ReadFile(in.schemaPath)
	if err != nil {
		return schema.FormSchema{}, nil, err
	}

	parser := schema.NewParser(schema.WithLogger(logger))
	parsed := parser.ParseDefinition(raw)

	state, err := loadSubmissionFile(logger, parsed, in.submissionPath)
	if err != nil {
		return schema.FormSchema{}, nil, err
	}
	return parsed, state, nil
}

func loadSubmissionFile(logger *zap.Logger, parsed schema.FormSchema, path string) (submission.State, error) {
	if path == "" {
		return submission.State{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var record map[string]any
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return formstate.BuildFormState(map[string]any{"schema": parsed}, record, formstate.Config{Logger: logger}), nil
}

func renderOutput(ctx context.Context, name string, form model.FormModel, state submission.State) ([]byte, error) {
	options := render.RenderOptions{Values: state}

	if name == "state" {
		return json.MarshalIndent(state, "", "  ")
	}

	htmlRenderer, err := html.New()
	if err != nil {
		return nil, err
	}
	tuiRenderer, err := tui.New()
	if err != nil {
		return nil, err
	}

	registry := render.NewRegistry()
	registry.MustRegister(htmlRenderer)
	registry.MustRegister(tuiRenderer)

	renderer, err := registry.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown renderer %q: %w", name, err)
	}
	return renderer.Render(ctx, form, options)
}
