package interpreter

import "errors"

// ErrAlreadyRunning is returned by Run when an interpreter that already has
// an active run is asked to run again (spec.md §3: "single active run at a
// time; second run while one is active is a misuse error").
var ErrAlreadyRunning = errors.New("interpreter: already running")

// ErrInvalidWorkflow wraps every structural validation failure of §4.1.
var ErrInvalidWorkflow = errors.New("interpreter: invalid workflow")

// ErrUnknownGuardOperator is returned by ParseWorkflow when a where clause
// uses a "$"-prefixed key outside {$and,$or,$not,$before,$after}. Per
// spec.md §7 this is a guard-matching error kind; moving its detection to
// parse time (rather than match time) mirrors the dotted-path redesign of
// §4.1/§9: reject the malformed workflow before it ever runs.
var ErrUnknownGuardOperator = errors.New("interpreter: unknown guard operator")

// errPageGone signals that the driver's page was closed or became
// unresponsive mid-loop. It is never returned from Run; the main loop
// treats it as a clean end of that page's loop (spec.md §4.3, §7).
var errPageGone = errors.New("interpreter: page gone")
