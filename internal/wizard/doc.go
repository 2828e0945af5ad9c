// Package wizard runs linear multi-step input flows. Each step validates one
// field against a declarative Policy, stores it in the session draft and
// moves the session to the next step; the last step hands the draft to the
// flow's Finish callback.
package wizard
