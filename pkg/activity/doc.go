// Package activity turns traced store actions into activity events and fans
// them out to hooks. Sinks such as usersink forward the events to external
// audit stores.
package activity
