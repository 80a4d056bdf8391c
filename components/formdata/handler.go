package formdata

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/client"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/submission"
)

// HTTPError lets guards control the response status of a rejection.
type HTTPError interface {
	error
	StatusCode() int
}

// StatusError is a plain HTTPError implementation.
type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

type stateResponse struct {
	Data submission.State `json:"data"`
}

// Handler builds a net/http handler with default options plus any overrides.
func Handler(fns ...OptionFn) http.Handler {
	return HandlerWithOptions(NewOptions(fns...))
}

// HandlerWithOptions builds a net/http handler from a pre-constructed Options
// value. Callers are expected to pass an Options value produced by NewOptions
// so defaults apply.
func HandlerWithOptions(opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r == nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				writeGuardError(w, err)
				return
			}
		}

		formID := r.PathValue("formID")
		submissionID := r.PathValue("submissionID")
		if formID == "" || submissionID == "" {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if opts.Fetcher == nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		ctx := r.Context()

		if opts.Cache != nil {
			if cached, err := opts.Cache.GetState(ctx, formID, submissionID); err == nil {
				writeState(w, r, cached)
				return
			}
		}

		form, err := opts.Fetcher.FetchForm(ctx, formID)
		if err != nil {
			writeFetchError(w, opts, err, "form fetch failed", formID, submissionID)
			return
		}
		record, err := opts.Fetcher.FetchSubmission(ctx, formID, submissionID)
		if err != nil {
			writeFetchError(w, opts, err, "submission fetch failed", formID, submissionID)
			return
		}

		parsed := opts.Parser.ParseForm(form)
		index := schema.IndexSchema(parsed)
		normalizer := submission.NewNormalizer(index, submission.WithLogger(opts.Logger))

		payload := normalizer.ParseEnvelope(record)
		if payload == nil {
			payload = normalizer.ParsePayload(record)
		}
		state := normalizer.Build(payload)

		if opts.Cache != nil {
			if err := opts.Cache.SaveState(ctx, formID, submissionID, state); err != nil {
				opts.Logger.Warn("state cache write failed",
					zap.String("form_id", formID),
					zap.String("submission_id", submissionID),
					zap.Error(err))
			}
		}

		writeState(w, r, state)
	})
}

func writeState(w http.ResponseWriter, r *http.Request, state submission.State) {
	if state == nil {
		state = submission.State{}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(stateResponse{Data: state})
}

func writeFetchError(w http.ResponseWriter, opts Options, err error, msg, formID, submissionID string) {
	if errors.Is(err, client.ErrFormNotFound) || errors.Is(err, client.ErrSubmissionNotFound) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	opts.Logger.Warn(msg,
		zap.String("form_id", formID),
		zap.String("submission_id", submissionID),
		zap.Error(err))
	http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
}

func writeGuardError(w http.ResponseWriter, err error) {
	if w == nil {
		return
	}
	if err == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
		if code <= 0 {
			code = http.StatusForbidden
		}
	}
	http.Error(w, http.StatusText(code), code)
}
