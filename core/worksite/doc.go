// Package worksite wires a fleet, a charger pool and a work-cycle profile into
// a discrete-event run of one workday.
//
// A Worksite is built once with New and run once with Run. Agents are spawned
// group by group in model.SpawnOrder and numbered from 1 inside each group, so
// two worksites built from the same inputs produce identical logs.
package worksite
