package sim

import "github.com/essencefield/fieldsim/internal/geometry"

// #region integrate

// zeroSpeed is the threshold below which a velocity is treated as exactly
// stopped and restarted along +x.
const zeroSpeed = 1e-6

// integrate advances velocity and position in place:
// v = (v + dt*a)*damping, rescaled to exactly minSpeed when it falls
// below the floor, then x += dt*v. The rescale means the stalled state is
// never observable after integration.
func integrate(position, velocity, acceleration []float32, cfg DynamicsConfig) {
	for i := range velocity {
		var a float32
		if i < len(acceleration) {
			a = acceleration[i]
		}
		velocity[i] = (velocity[i] + cfg.Dt*a) * cfg.Damping
	}

	speed := geometry.Norm(velocity)
	if speed < cfg.MinSpeed {
		if speed > zeroSpeed {
			// Normalize then scale: keeps an axis-aligned velocity exactly
			// on the floor instead of one rounding step away.
			for i := range velocity {
				velocity[i] = velocity[i] / speed * cfg.MinSpeed
			}
		} else {
			// Exactly stopped: restart along a fixed unit direction so the
			// trajectory stays deterministic.
			for i := range velocity {
				velocity[i] = 0
			}
			velocity[0] = cfg.MinSpeed
		}
	}

	for i := range position {
		if i < len(velocity) {
			position[i] += cfg.Dt * velocity[i]
		}
	}
}

// #endregion integrate
