/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package delaytest

import (
	"fmt"
	"math"
	"slices"

	"github.com/Knetic/govaluate"
)

// VerdictHelp is a help message used by flags in main
const VerdictHelp = `Verdict is a boolean expression evaluated over the run summary, the run fails when it is false.
supported operations:
  evaluation is done with govaluate, please check https://github.com/Knetic/govaluate/blob/master/MANUAL.md
supported variables:
  mean, stddev (delay error statistics, in ns)
  minerr, maxerr (smallest and largest delay error, in ns)
  maxabs (largest absolute delay error, in ns)
  p99 (99th percentile of delay error, in ns)
  invalid (number of iterations without valid delay error)
  retries (total number of resumed sleeps)
  exhausted (number of iterations which ran out of retries)
  iterations (number of iterations)
supported functions:
  abs(value) - absolute value of single float64, for example abs(-1) = 1
  max(values...) - largest of the values, for example max(mean, 1000) = 1000 if mean < 1000
  min(values...) - smallest of the values
example:
  "p99 < 200000 && invalid == 0"`

// Verdict stores pass/fail expression in two forms: string and parsed
type Verdict struct {
	Expr string
	expr *govaluate.EvaluableExpression
}

var supportedVariables = []string{
	"mean",
	"stddev",
	"minerr",
	"maxerr",
	"maxabs",
	"p99",
	"invalid",
	"retries",
	"exhausted",
	"iterations",
}

func floatArgs(name string, args []interface{}) ([]float64, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%s: wrong number of arguments: want at least 1, got 0", name)
	}
	vals := make([]float64, len(args))
	for i, a := range args {
		v, ok := a.(float64)
		if !ok {
			return nil, fmt.Errorf("%s: argument %d is %T, not a number", name, i, a)
		}
		vals[i] = v
	}
	return vals, nil
}

// all the functions we support in expressions
var functions = map[string]govaluate.ExpressionFunction{
	"abs": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("abs: wrong number of arguments: want 1, got %d", len(args))
		}
		vals, err := floatArgs("abs", args)
		if err != nil {
			return nil, err
		}
		return math.Abs(vals[0]), nil
	},
	"max": func(args ...interface{}) (interface{}, error) {
		vals, err := floatArgs("max", args)
		if err != nil {
			return nil, err
		}
		return slices.Max(vals), nil
	},
	"min": func(args ...interface{}) (interface{}, error) {
		vals, err := floatArgs("min", args)
		if err != nil {
			return nil, err
		}
		return slices.Min(vals), nil
	},
}

// NewVerdict parses the expression and checks it only uses known variables
func NewVerdict(exprStr string) (*Verdict, error) {
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(exprStr, functions)
	if err != nil {
		return nil, err
	}
	for _, v := range expr.Vars() {
		if !slices.Contains(supportedVariables, v) {
			return nil, fmt.Errorf("unsupported variable %q", v)
		}
	}
	return &Verdict{Expr: exprStr, expr: expr}, nil
}

// Evaluate returns whether the summary passes
func (v *Verdict) Evaluate(s *Summary) (bool, error) {
	res, err := v.expr.Evaluate(s.parameters())
	if err != nil {
		return false, fmt.Errorf("evaluating %q: %w", v.Expr, err)
	}
	pass, ok := res.(bool)
	if !ok {
		return false, fmt.Errorf("evaluating %q: result %v is not a boolean", v.Expr, res)
	}
	return pass, nil
}
