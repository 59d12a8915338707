// Package scaling rescales numeric samples.
//
// Min-max scaling and the Box-Cox power transform are not interchangeable.
// Min-max maps a sample linearly onto [0,1] and keeps its shape; the power
// transform deliberately reshapes a strictly positive sample toward a Gaussian
// and records the lambda needed to invert it.
package scaling
