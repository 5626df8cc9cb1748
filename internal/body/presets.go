package body

// basePose returns a standing body in image coordinates (Y grows downward).
// Arms are left for the caller to place.
func basePose() Pose {
	p := Pose{Score: 0.95}

	set := func(idx int, x, y, z float64) {
		p.Points[idx] = Landmark{X: x, Y: y, Z: z, Visibility: 0.95}
	}

	// Head
	set(Nose, 0.50, 0.30, -0.05)
	set(LeftEyeInner, 0.51, 0.28, -0.05)
	set(LeftEye, 0.52, 0.28, -0.05)
	set(LeftEyeOuter, 0.53, 0.28, -0.05)
	set(RightEyeInner, 0.49, 0.28, -0.05)
	set(RightEye, 0.48, 0.28, -0.05)
	set(RightEyeOuter, 0.47, 0.28, -0.05)
	set(LeftEar, 0.55, 0.29, 0.0)
	set(RightEar, 0.45, 0.29, 0.0)
	set(MouthLeft, 0.52, 0.33, -0.04)
	set(MouthRight, 0.48, 0.33, -0.04)

	// Torso: shoulder center (0.5, 0.4), hip center (0.5, 0.7), torso length 0.3
	set(LeftShoulder, 0.60, 0.40, 0.0)
	set(RightShoulder, 0.40, 0.40, 0.0)
	set(LeftHip, 0.58, 0.70, 0.0)
	set(RightHip, 0.42, 0.70, 0.0)

	// Legs
	set(LeftKnee, 0.59, 0.85, 0.0)
	set(RightKnee, 0.41, 0.85, 0.0)
	set(LeftAnkle, 0.59, 0.98, 0.0)
	set(RightAnkle, 0.41, 0.98, 0.0)
	set(LeftHeel, 0.59, 0.99, 0.02)
	set(RightHeel, 0.41, 0.99, 0.02)
	set(LeftFootIndex, 0.60, 1.00, -0.03)
	set(RightFootIndex, 0.40, 1.00, -0.03)

	return p
}

// setHand places the hand landmarks around a wrist.
func setHand(p *Pose, pinky, index, thumb int, wrist Landmark) {
	p.Points[pinky] = Landmark{X: wrist.X, Y: wrist.Y + 0.02, Z: wrist.Z, Visibility: wrist.Visibility}
	p.Points[index] = Landmark{X: wrist.X, Y: wrist.Y - 0.02, Z: wrist.Z, Visibility: wrist.Visibility}
	p.Points[thumb] = Landmark{X: wrist.X, Y: wrist.Y - 0.01, Z: wrist.Z - 0.01, Visibility: wrist.Visibility}
}

func setLeftArm(p *Pose, elbow, wrist Landmark) {
	p.Points[LeftElbow] = elbow
	p.Points[LeftWrist] = wrist
	setHand(p, LeftPinky, LeftIndex, LeftThumb, wrist)
}

func setRightArm(p *Pose, elbow, wrist Landmark) {
	p.Points[RightElbow] = elbow
	p.Points[RightWrist] = wrist
	setHand(p, RightPinky, RightIndex, RightThumb, wrist)
}

// GuardPose returns a preset pose with both fists raised next to the chin.
// Both wrists sit well inside the guard distance of their shoulders.
func GuardPose() Pose {
	p := basePose()
	setLeftArm(&p,
		Landmark{X: 0.64, Y: 0.52, Z: 0.0, Visibility: 0.95},
		Landmark{X: 0.58, Y: 0.36, Z: -0.02, Visibility: 0.95},
	)
	setRightArm(&p,
		Landmark{X: 0.36, Y: 0.52, Z: 0.0, Visibility: 0.95},
		Landmark{X: 0.42, Y: 0.36, Z: -0.02, Visibility: 0.95},
	)
	return p
}

// JabPose returns a preset pose with the right arm fully extended
// sideways at shoulder height and the left fist held in guard.
func JabPose() Pose {
	p := GuardPose()
	setRightArm(&p,
		Landmark{X: 0.28, Y: 0.40, Z: 0.0, Visibility: 0.95},
		Landmark{X: 0.16, Y: 0.40, Z: 0.0, Visibility: 0.95},
	)
	return p
}

// IdlePose returns a preset pose with both arms hanging at the sides.
func IdlePose() Pose {
	p := basePose()
	setLeftArm(&p,
		Landmark{X: 0.62, Y: 0.55, Z: 0.0, Visibility: 0.9},
		Landmark{X: 0.63, Y: 0.70, Z: 0.0, Visibility: 0.9},
	)
	setRightArm(&p,
		Landmark{X: 0.38, Y: 0.55, Z: 0.0, Visibility: 0.9},
		Landmark{X: 0.37, Y: 0.70, Z: 0.0, Visibility: 0.9},
	)
	return p
}
