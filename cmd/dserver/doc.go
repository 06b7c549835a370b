// Package main hosts the dserver CLI entrypoint and command graph.
//
// The root command either detaches a daemon (-d/--demonize) or sends one
// message to a running daemon and prints the reply (-c/--connect). The hidden
// daemon command is the detached child: it adopts the listening socket the
// parent bound and hands it to the daemon runtime. Status and config commands
// round out the tree.
package main
