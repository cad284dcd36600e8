// Package fluidui interprets semantic UI requests into renderable elements.
//
// Agents never construct UI. They describe needed user interaction in
// semantic terms (a UIRequest naming a template type and its data) and the
// interpreter deterministically maps that to a concrete element. The
// mapping fails closed: unknown template types and missing data fields are
// errors that name every problem at once, so an agent author gets the full
// fix list from a single attempt.
package fluidui
