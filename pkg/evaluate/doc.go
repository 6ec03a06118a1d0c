// Package evaluate computes confusion matrices and the classification-quality
// report derived from them.
//
// A prediction is classified positive when it is strictly greater than the
// threshold. Every derived rate carries a Defined flag: a rate whose
// denominator is zero (a class absent from the labels) is reported as
// undefined rather than silently collapsing to 0 or NaN.
//
// # Usage
//
//	report, err := evaluate.Evaluate(predictions, labels, 0.42)
//	if err != nil {
//	    return err // InputError: misaligned input
//	}
//	report.WriteText(os.Stdout)
//	if derr := report.Err(); derr != nil {
//	    // one or more rates undefined
//	}
package evaluate
