package parser

// MaxIncludeDepth bounds how deeply .include may nest, independent of
// the cycle check (which catches only cycles, not long acyclic chains).
const MaxIncludeDepth = 64
