package server

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// logSchema describes an acceptable day log. Unknown fields are allowed so
// older and newer clients can share a server.
const logSchema = `
#Session: {
	id?:         string
	type?:       "work" | "idle" | "manual-edit"
	reasonCode?: string
	startTime?:  int | null
	endTime?:    int | null
	duration:    number & >=0
	...
}

#Job: {
	id?:          string
	name:         string & !=""
	status?:      string
	sessions:     [...(#Session | number)]
	isClockedIn?: bool
	notes?:       [...string]
	totalTime?:   number & >=0
	...
}

#DayLog: {
	id?:           string
	logId?:        string
	date:          =~"^[0-9]{4}-[0-9]{2}-[0-9]{2}$"
	jobs:          [...#Job]
	idleTotal?:    (number & >=0) | null
	dayStartTime?: int | null
	dailySummary?: string
	...
}
`

// Validator checks request bodies against the day-log schema. A cue.Context
// is not safe for concurrent use, so calls are serialized.
type Validator struct {
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator compiles the schema.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(logSchema)
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compiling log schema: %w", err)
	}
	schema := root.LookupPath(cue.ParsePath("#DayLog"))
	if !schema.Exists() {
		return nil, fmt.Errorf("log schema has no #DayLog definition")
	}
	return &Validator{ctx: ctx, schema: schema}, nil
}

// Validate reports why body is not an acceptable day log.
func (v *Validator) Validate(body []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	data := v.ctx.CompileBytes(body)
	if err := data.Err(); err != nil {
		return fmt.Errorf("malformed JSON: %w", err)
	}
	if err := v.schema.Unify(data).Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}
