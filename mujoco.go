//go:build mujoco

package main

import _ "github.com/samuelfneumann/tripod/physics/mujoco"
