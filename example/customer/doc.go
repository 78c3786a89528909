// Package customer is the customer part of the routing example: a mapper issuing one SQL statement
// per operation and a service on top of it. Every mapper and service operation runs through a
// routing.Interceptor, so reads land on the replica and writes on the primary.
package customer
