// Package physics simulates the rigid-body side of the bench: bodies
// under gravity, motors with speed-torque curves, gear trains,
// spring-dampers, breakable joints, particles and soft-body chains.
//
// Stepping is deterministic and single-threaded. Forces accumulate on
// bodies during a step and are cleared after integration, so element
// order within a step does not leak state between frames. The
// simulator also tracks an exponential moving average of body
// accelerations as a scalar vibration level, which feeds the failure
// model.
package physics
