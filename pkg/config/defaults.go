package config

/**
 * Environment variables
 */

// LogLevelEnvName controls the telemetry logger's verbosity.
const LogLevelEnvName = "MATCHSIM_LOG_LEVEL"

/**
 * Parameters
 */

// DefaultNPermutations is M_outer when Options.NPermutations is unset.
const DefaultNPermutations = 1000

// DefaultMethod is used when Options.Method is unset.
const DefaultMethod = DA

// DefaultRSDInner is T_inner when Options.RSDInner is unset.
const DefaultRSDInner = 500

// SimplexTolerance is the numerical tolerance passed to the RSD+Trade
// linear-program solver.
const SimplexTolerance = 1e-9
