// Package fleet is the bus operator and administrator domain service. It ties
// the route distance model and the search filters to the document store, the
// blob store and the credential provider.
package fleet

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/patrickmn/go-cache"

	"busroot.app/docstore"
	"busroot.app/internal/auth"
	"busroot.app/internal/search"
)

const (
	busesCollection     = "buses"
	distancesCollection = "intermediateDistances"
	feedbackCollection  = "feedback"

	locationsCacheKey = "locations"
)

var (
	ErrDuplicateBusName = errors.New("a bus with this name is already registered")
	ErrBusNotFound      = errors.New("bus not found")
	ErrRouteNotFound    = errors.New("distance table not found for route")
	ErrTimingNotFound   = errors.New("timing not found")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// Store is the document store surface the manager depends on.
type Store interface {
	Get(ctx context.Context, collection string, key docstore.Key, dst any) error
	List(ctx context.Context, collection string) ([]docstore.Document, error)
	Set(ctx context.Context, collection string, key docstore.Key, value any) error
	Update(ctx context.Context, collection string, key docstore.Key, partial any) error
	Push(ctx context.Context, collection string, value any) (string, error)
	Delete(ctx context.Context, collection string, key docstore.Key) error
	EqualTo(ctx context.Context, collection, field string, value any) ([]docstore.Document, error)
}

type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
	Remove(ctx context.Context, url string) error
}

type Credentials interface {
	CreateAccount(ctx context.Context, email, password string) (auth.Account, error)
	SignIn(ctx context.Context, email, password string) (auth.Account, error)
}

// Manager holds the collaborators every fleet operation needs.
type Manager struct {
	store    Store
	blobs    Uploader
	creds    Credentials
	logger   *slog.Logger
	validate *validator.Validate
	cache    *cache.Cache
	now      func() time.Time
}

func NewManager(store Store, blobs Uploader, creds Credentials, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:    store,
		blobs:    blobs,
		creds:    creds,
		logger:   logger,
		validate: newValidator(),
		cache:    cache.New(5*time.Minute, 10*time.Minute),
		now:      time.Now,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := search.ParseClock(fl.Field().String())
		return err == nil
	})
	return v
}

// ValidationError carries per-field messages keyed by the JSON field path.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, messages := range e.Fields {
		parts = append(parts, field+": "+strings.Join(messages, ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) empty() bool {
	return len(e.Fields) == 0
}

// validateStruct runs the validator tags of value and converts failures into
// a ValidationError.
func (m *Manager) validateStruct(value any) *ValidationError {
	verr := &ValidationError{}
	err := m.validate.Struct(value)
	if err == nil {
		return verr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.add("_", err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		verr.add(fieldPath(fe.Namespace()), failureMessage(fe))
	}
	return verr
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func failureMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "clock":
		return "must be a time of day in HH:MM"
	case "gte":
		return "must be at least " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}
