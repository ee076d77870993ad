package durable

import "strings"

// Separator joins the agent and operation halves of a unit identifier.
const Separator = "."

// OpGenerateContent names the model-generation operation. It is the only
// operation the interception hook dispatches today; tools dispatched through
// the engine carry their own operation names.
const OpGenerateContent = "generate_content"

// UnitID identifies a durable unit of work. The engine records results under
// this identifier and re-derives it on replay, so identical inputs must
// always produce the identical token.
type UnitID string

func (u UnitID) String() string { return string(u) }

// Resolve derives the unit identifier for an agent operation. It is a pure
// function of its inputs: no state, no randomness, no process identity. A
// missing agent or operation name fails with a ResolutionError instead of
// substituting a placeholder, since a guessed identity would record results
// under a token no replay can re-derive.
func Resolve(agentName, operationName string) (UnitID, error) {
	if agentName == "" {
		return "", &ResolutionError{Operation: operationName, Reason: "agent name is empty"}
	}
	if operationName == "" {
		return "", &ResolutionError{Agent: agentName, Reason: "operation name is empty"}
	}
	if strings.Contains(agentName, Separator) {
		return "", &ResolutionError{Agent: agentName, Operation: operationName, Reason: "agent name contains the separator"}
	}
	if strings.Contains(operationName, Separator) {
		return "", &ResolutionError{Agent: agentName, Operation: operationName, Reason: "operation name contains the separator"}
	}
	return UnitID(agentName + Separator + operationName), nil
}

// ParseUnitID splits a unit identifier back into its agent and operation
// halves. Used on the worker side to route a dynamically-named unit to the
// code that services it.
func ParseUnitID(id string) (agentName, operationName string, err error) {
	agentName, operationName, found := strings.Cut(id, Separator)
	if !found || agentName == "" || operationName == "" {
		return "", "", &ResolutionError{Reason: "malformed unit id " + id}
	}
	return agentName, operationName, nil
}
