// Package sensors polls HTTP sensor endpoints and assembles one reading record
// per sensor per poll cycle.
//
// Every signal is fetched with a plain GET to http://{address}/{signal}. Any
// failure for a single signal is recorded as the Sentinel value so one bad
// endpoint never aborts the rest of the cycle.
package sensors
