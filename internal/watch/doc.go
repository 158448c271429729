// Package watch keeps a site's output current while it is being served.
//
// A Rebuilder owns the site and runs builds one at a time on a single worker.
// A Watcher turns filesystem changes into rebuild requests and a Scheduler
// adds periodic ones. Every request results in exactly one full build; builds
// never overlap and requests are served in arrival order.
package watch
