// Package portal reads serial number records from the SOLIDWORKS customer
// portal by driving a headless Chrome session.
//
// A lookup logs in with the configured portal account, opens the "View" page
// of the listing row that carries the serial, and reads the license labels
// and the activation table. Each lookup starts and stops its own browser.
package portal
