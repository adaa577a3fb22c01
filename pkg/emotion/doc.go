/*
Package emotion implements the emotional inertia controller and the
expression sequencer.

Smart switches pass an inertia policy: inside the minimum interval a
change is rejected unless momentum has decayed below the candidate's
base intensity or the catalog lists the candidate as compatible with the
current expression. Momentum resets to the committed expression's
intensity and decays linearly. Sequences play ordered timed steps on the
engine's virtual clock and settle back to neutral on completion, routing
through a short rebound expression when falling from high intensity.

# Key Entities

  - Controller: the emotional record, the inertia policy and the sequencer.
  - SequenceBuilder: a fluent composer for sequences defined in code.
*/
package emotion
