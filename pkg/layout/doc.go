// Package layout turns an arbitrary query result into a leveled,
// collapsible, positioned graph.
//
// # Pipeline
//
// Layout runs in three steps:
//
//  1. [AssignLevels] picks a root set, levels every reachable node with a
//     breadth-first search and places "reverse" business functions (nodes
//     that only point back into the leveled hierarchy) one level past
//     their targets. Targets reached only through a reverse node are leveled
//     after it.
//  2. [Compose] derives the initial collapse state: level-1 nodes and
//     reverse nodes with children start collapsed, deeper nodes start
//     hidden.
//  3. [State.Toggle] and friends mutate the collapse state; [State.Layout]
//     exports the positioned result.
//
// # Roots
//
// Roots are the nodes without incoming edges. Business functions among them
// are deferred: they become reverse nodes when they point at something the
// other roots already reached, and are only used as roots otherwise. When
// every node has an incoming edge, the top [DefaultFallbackRoots] nodes by
// outdegree are used instead.
//
// # Known Limitations
//
// A node reachable along several paths keeps the level of the path that
// discovers it first; there is no shortest-path correction. Collapse
// propagates along a single primary parent per node (the source of the
// first edge targeting it), so a shared child follows only that parent.
// Expanding a node shows each descendant whose primary-parent chain holds no
// collapsed node; nodes without outgoing edges cannot be toggled.
//
// # Concurrency
//
// [AssignLevels] and [Compose] are pure. A [State] is not safe for
// concurrent use; callers serialize toggles.
package layout
