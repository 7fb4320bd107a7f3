// SPDX-License-Identifier: GPL-3.0-or-later

package feedpipe

import "github.com/nimbusdata/feedpipe/internal/errclass"

// ErrClassifier classifies errors into categorical strings for analysis.
//
// Implementations map errors to short, descriptive labels (e.g., "ETIMEDOUT",
// "ECONNRESET") that facilitate systematic analysis of network measurement results.
type ErrClassifier interface {
	Classify(err error) string
}

// ErrClassifierFunc adapts a function to the [ErrClassifier] interface.
//
// This allows using simple functions as classifiers:
//
//	cfg.ErrClassifier = ErrClassifierFunc(myClassify)
type ErrClassifierFunc func(error) string

var _ ErrClassifier = ErrClassifierFunc(nil)

// Classify implements [ErrClassifier].
func (f ErrClassifierFunc) Classify(err error) string {
	return f(err)
}

// DefaultErrClassifier classifies errors using the errno-based taxonomy
// from [internal/errclass]: every layer in this pipeline needs the
// classification to pick the right error-kind (spec §7).
var DefaultErrClassifier = ErrClassifierFunc(func(err error) string {
	return string(errclass.Classify(err))
})
