// Package build runs a site: rules transform matched documents through their
// filters and templates, copies move files verbatim, and every output lands at
// the path its route computes.
//
// A Site is configured with the fluent With* methods and executed with Build.
// Builds are sequential and fail on the first fatal error; files written
// before the failure are left in place.
package build
