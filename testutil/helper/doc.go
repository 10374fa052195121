// Package helper provides test doubles and fixtures shared by the lending tests.
package helper
