// Package order is the order part of the routing example. It mirrors package customer and adds
// monetary amounts, payment and line items stored as jsonb.
package order
