// Package memory implements in-process channels. All contexts attached to the
// same Hub can reach each other by address. Inboxes are bounded, so a slow
// receiver produces real backpressure, and a Filter can drop frames to simulate
// loss. Tests and embedded single process setups use it.
package memory
