package domain

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds surfaced by the pipeline.
var (
	ErrDataUnavailable       = errors.New("article data unavailable")
	ErrDataCorrupt           = errors.New("article data corrupt")
	ErrEmptyCorpus           = errors.New("article corpus is empty")
	ErrModelUnavailable      = errors.New("language model unavailable")
	ErrMalformedRankerOutput = errors.New("malformed ranker output")
	ErrNoRelevantArticles    = errors.New("no relevant articles")
	ErrInvalidRequest        = errors.New("invalid request")
)

// NoRelevantArticlesError reports the titles that were available when nothing matched.
type NoRelevantArticlesError struct {
	Available []string
}

func (e *NoRelevantArticlesError) Error() string {
	return fmt.Sprintf("%s (%d articles available)", ErrNoRelevantArticles, len(e.Available))
}

func (e *NoRelevantArticlesError) Unwrap() error {
	return ErrNoRelevantArticles
}

// ErrorKind is a stable label for logs and metrics.
type ErrorKind string

const (
	KindNone                  ErrorKind = ""
	KindDataUnavailable       ErrorKind = "DataUnavailable"
	KindDataCorrupt           ErrorKind = "DataCorrupt"
	KindEmptyCorpus           ErrorKind = "EmptyCorpus"
	KindModelUnavailable      ErrorKind = "ModelUnavailable"
	KindMalformedRankerOutput ErrorKind = "MalformedRankerOutput"
	KindNoRelevantArticles    ErrorKind = "NoRelevantArticles"
	KindInvalidRequest        ErrorKind = "InvalidRequest"
	KindInternal              ErrorKind = "Internal"
)

// Kind classifies err into one of the pipeline error kinds.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrDataUnavailable):
		return KindDataUnavailable
	case errors.Is(err, ErrDataCorrupt):
		return KindDataCorrupt
	case errors.Is(err, ErrEmptyCorpus):
		return KindEmptyCorpus
	case errors.Is(err, ErrModelUnavailable), errors.Is(err, context.DeadlineExceeded):
		return KindModelUnavailable
	case errors.Is(err, ErrMalformedRankerOutput):
		return KindMalformedRankerOutput
	case errors.Is(err, ErrNoRelevantArticles):
		return KindNoRelevantArticles
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	default:
		return KindInternal
	}
}
