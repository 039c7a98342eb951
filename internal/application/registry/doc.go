// Package registry holds the active workflow graphs and answers routing
// queries against them.
//
// The registry owns, per workflow: the node set, the edge list and the
// derived adjacency map. It decides which nodes are candidates for a
// domain event via a static node-type capability table. The connection
// validator in this package is consulted by the canvas at edge-creation
// time and by registration to reject cyclic graphs.
package registry
