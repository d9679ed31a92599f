// Package model loads model descriptions.
//
// A description names a model type from the physics package, sets its
// parameters, and gives a timestep, an integrator and an initial state. It
// is written as XML:
//
//	<model type="pendulum" name="demo">
//	  <option timestep="0.002" integrator="rk4"/>
//	  <param name="length" value="1.5"/>
//	  <state>0.5 0</state>
//	</model>
//
// or as the equivalent YAML document. References resolve through a [Loader].
package model
