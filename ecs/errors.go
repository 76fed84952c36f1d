package ecs

import (
	"fmt"
	"reflect"
)

// ErrSignatureOverflow is raised when a component type is registered beyond
// the Signature bitset's capacity. This is a fatal configuration error: the
// world cannot continue with a misconfigured type space.
type ErrSignatureOverflow struct {
	Type reflect.Type
}

func (e ErrSignatureOverflow) Error() string {
	return fmt.Sprintf("ecs: registering %v would exceed the %d component type capacity of Signature", e.Type, MaxComponentTypes)
}

// ErrUnknownComponentType is raised when an operation references a TypeId
// outside the registered range.
type ErrUnknownComponentType struct {
	ID TypeId
}

func (e ErrUnknownComponentType) Error() string {
	return fmt.Sprintf("ecs: unknown component type id %d", e.ID)
}

// ErrSystemAlreadyRegistered is raised by Scheduler.Register when a system
// name is registered twice; ID is the already-registered system's id.
type ErrSystemAlreadyRegistered struct {
	ID SystemId
}

func (e ErrSystemAlreadyRegistered) Error() string {
	return fmt.Sprintf("ecs: system %d already registered", e.ID)
}

// ErrWorkerPoolFailed describes a worker goroutine exiting unexpectedly, a
// fatal condition that leaves the world in an unknown state. No code in
// this module constructs or raises it: the workerpool package's workers
// only ever return nil, and Pool.Shutdown returns errgroup's error as is.
type ErrWorkerPoolFailed struct {
	Cause error
}

func (e ErrWorkerPoolFailed) Error() string {
	return fmt.Sprintf("ecs: worker pool failed: %v", e.Cause)
}

func (e ErrWorkerPoolFailed) Unwrap() error {
	return e.Cause
}
