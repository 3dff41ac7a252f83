// Package platform contains the tdl-specific glue: output grammar parsing,
// global argument construction, binary discovery and filesystem helpers.
package platform
