// Command custid resolves customer queries against the local store and the
// configured remote backends, and maintains the store from confirmed records.
//
// Subcommands:
//
//	lookup <query>   resolve a company name, office ID, tenant UID or code
//	add              confirm a record into the local store
//	list             show the local store
//	query            run a read-only SQL export against the relational source
//	store init       create an empty store with operator metadata
//	config init      write a sample configuration file
//	config validate  check the active configuration
package main
