// Package device probes host memory and CPU count so status output can warn
// when a machine is likely to struggle with long conversion batches.
package device
