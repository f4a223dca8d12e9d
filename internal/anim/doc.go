// Package anim drives a simulation through time.
//
// A Controller owns one simulation, one renderer/surface pair and at most
// one periodic Timer. Every tick advances the simulation by a single step
// and repaints the surface. Timers come from a Scheduler: TickerScheduler
// runs on a goroutine, ManualScheduler is fired by a host event loop.
package anim
