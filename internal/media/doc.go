// Package media defines the values that flow through the rendering pipeline:
// translation tasks produced in document order and the media results workers
// emit for them.
//
// Tasks and results are owned by whichever stage currently holds them. A
// stage hands a value off by pushing it onto the next queue and keeps no
// reference afterwards.
package media
