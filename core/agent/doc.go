// Package agent implements the per-machine state machines resumed by the engine.
//
// Battery-backed machines (wheel loaders, dumpers and battery excavators) share
// BatteryAgent: they sample their battery, work a tick, and go to a charger bay at
// each break or when the battery falls to the charging threshold. Cable-fed
// excavators use CableAgent: they draw grid power directly and power down during
// breaks.
package agent
