// Package cli provides the interactive CarFinder terminal client.
//
// The REPL stands in for the app's screens: sign-in, the car list with
// status filters and search, the add-car form and the profile. Every command
// starts one controller operation, follows the controller's snapshots while
// it runs and prints the terminal snapshot.
//
// Commands:
//
//	register, login, logout, whoami
//	list, lost, found, search <text>, add
//	profile, setprofile, avatar <path>
//	help, exit | quit
package cli
