// Package query validates the time-series selection submitted to /plot.
//
// Parse(values) checks the six fields net, sta, loc, cha, start, end in that
// order and fails fast on the first one that is absent or empty, returning a
// *MissingError whose Notice() names the field ("Missing end"). On success it
// returns a PlotQuery carrying exactly those six values; any other keys in the
// request are dropped.
package query
